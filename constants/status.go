package constants

// Stage identifies where in the pipeline a document currently is.
type Stage string

// Stable values (reported in outcomes and stored in logs).
const (
	StageReceived           Stage = "received"
	StageDeduplicating      Stage = "deduplicating"
	StageExtractingText     Stage = "extracting_text"
	StageExtractingSemantic Stage = "extracting_semantics"
	StageMapping            Stage = "mapping"
	StagePersisting         Stage = "persisting"
	StageDone               Stage = "done"
)

// OutcomeStatus is the terminal status of one document run.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)
