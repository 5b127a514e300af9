package consts

const (
	K = 1024
	M = 1024 * K

	// InsertBatch is the number of rows per multi-row INSERT into the mirror.
	// Serverless stores cap statement size, so keep the product of batch
	// size and row width well under the per-statement limit.
	InsertBatch = 500

	// UploadLimit bounds concurrent artifact uploads per cycle.
	UploadLimit = 4
	// MirrorLimit bounds concurrent per-table mirror replacements.
	MirrorLimit = 4

	// ParquetChunkSize is the row-group chunk passed to the parquet writer.
	// Fixed so re-exports of identical rows produce identical bytes.
	ParquetChunkSize = 4 * K

	// ManifestKey is the single fixed key of the manifest object.
	ManifestKey = "manifest.json"
	// ArtifactSuffix is appended to a table name to form its artifact key.
	ArtifactSuffix = ".parquet"

	// CandidateManifestName and ChangeSetName are staging-local files
	// handed between pipeline stages.
	CandidateManifestName = "manifest.json"
	ChangeSetName         = "changeset.json"
	LedgerName            = "mirror.ledger"

	// StagingSuffix names the shadow table used during an atomic replace.
	StagingSuffix = "__staging"
)

// MartPrefixes are the table name prefixes exported by default.
var MartPrefixes = []string{"fct_", "dim_", "agg_"}
