package llm

import "strings"

// The extraction prompt is Spanish because the contracts are. Section and
// field names are fixed contract between the model output and the mapper;
// changing them here requires matching mapper synonyms.
const instructionPrompt = `Instrucciones:

Por favor, analiza el siguiente contrato y extrae la información detallada a continuación. Organiza los datos en un formato JSON estructurado que permita manejar múltiples instancias (por ejemplo, Representante1, Representante2, MultaIncumplimiento1, MultaIncumplimiento2, etc.). Asegúrate de extraer toda la información relevante, prestando especial atención a las multas y sus implicancias.

1. Datos a Extraer:

Tipo de Contrato: (Ejemplo: Anexo, Contrato de Servicios, Confidencialidad (NDA), Carta Término)
Tipo de Servicio: (Ejemplo: Asesoría, Seguridad, Alimentación)
Parte/Contraparte: (Ejemplo: XXX vs YYY)
Fecha de Inicio / Fecha de Término
Renovación Automática: Indica si el contrato se renueva automáticamente.
Monto: Detalle del honorario total y condiciones de pago.
Multas Asociadas: Detalle completo de todas las multas, incluyendo:
Tipo de incumplimiento
Implicancias
Monto de la multa en UF
Plazo para la constancia
Descripción completa
Penalidades: Información sobre otras penalidades aplicables.
¿Término Anticipado?: Especifica el plazo requerido para el preaviso.
¿Exclusividad?: Indica si existe alguna cláusula de exclusividad y proporciona detalles.
Entidades: Extrae todas las entidades relevantes del contrato, como nombres de personas, países y otras entidades importantes.

2. Formato de Salida Esperado:
Organiza la información extraída en un único archivo JSON siguiendo la estructura enumerada que permite múltiples instancias.`

const outputRules = `INSTRUCCIONES IMPORTANTES:
No inicies nunca con ` + "```json" + `, simplemente responde con el JSON completo.
Si no existe el valor pon null o un string vacío "".

### REGLAS ESTRICTAS PARA NOMBRES DE CAMPOS JSON ###
DEBES USAR EXACTAMENTE ESTOS NOMBRES DE CAMPOS:

1. SECCIÓN PRINCIPAL: "Contrato"
2. SECCIÓN DE MULTAS: "Multas"
3. SECCIÓN DE COMPAÑÍA: "CompaniaInfo"
4. SECCIÓN DE PROVEEDORES: "ProveedoresInfo"
5. SECCIÓN DE REPRESENTANTES: "Representantes"
6. SECCIÓN DE PENALIDADES: "Penalidades"
7. SECCIÓN DE ENTIDADES: "Entidades"

### ESTRUCTURA OBLIGATORIA ###
{
  "Contrato": {
    "tipo_contrato": "",
    "tipo_servicio": "",
    "parte_cliente": "",
    "parte_proveedor": "",
    "fecha_inicio": "",
    "fecha_termino": "",
    "renovacion_automatica": false,
    "monto_total": 0,
    "condiciones_de_pago": "",
    "plazo_pago_dias": 0,
    "termino_anticipado_activo": false,
    "termino_anticipado_plazo_dias": 0,
    "exclusividad_activo": false,
    "exclusividad_detalles": "",
    "ley_aplicable": "",
    "domicilio_jurisdiccion": "",
    "descripcion": ""
  },
  "Multas": [],
  "Penalidades": [],
  "CompaniaInfo": {},
  "ProveedoresInfo": [],
  "Representantes": [],
  "Administradores": [],
  "Entidades": []
}

IMPORTANTE: EXTRAE TODAS LAS ENTIDADES DEL CONTRATO, NO TE LIMITES A 5 ENTIDADES.
NO INVENTES NI COPIES DATOS DE EJEMPLO. Solo reporta lo que está en el contrato a procesar.

Asegúrate de que el JSON resultante sea válido y siga EXACTAMENTE la estructura proporcionada.`

// BuildPrompt assembles the full user message for one contract.
func BuildPrompt(contractText string) string {
	var b strings.Builder
	b.Grow(len(instructionPrompt) + len(outputRules) + len(contractText) + 128)
	b.WriteString(instructionPrompt)
	b.WriteString("\n---\nENTRADA DEL CONTRATO A PROCESAR: **** INICIO CONTRATO ****\n")
	b.WriteString(contractText)
	b.WriteString("\n---\n*** FIN CONTRATO A PROCESAR ***\n\n")
	b.WriteString(outputRules)
	return b.String()
}

// SystemPrompt is the fixed role message.
const SystemPrompt = "Eres un experto en procesamiento de contratos. Respondes únicamente con JSON válido."
