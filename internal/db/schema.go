package db

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS brdocs_schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{1, migrationV1Runs},
	{2, migrationV2Artifacts},
}

const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id UUID PRIMARY KEY,
	document_path TEXT NOT NULL DEFAULT '',
	document_hash TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL DEFAULT '',
	company_nip TEXT NOT NULL DEFAULT '',
	project_name TEXT NOT NULL DEFAULT '',
	fiscal_year INTEGER NOT NULL DEFAULT 0,
	level TEXT NOT NULL,
	overall_status TEXT NOT NULL CHECK (overall_status IN ('PASSED', 'WARNING', 'FAILED')),
	overall_score DOUBLE PRECISION NOT NULL,
	total_iterations INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	errors TEXT[] NOT NULL DEFAULT '{}',
	started_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_validation_runs_nip ON validation_runs (company_nip);
CREATE INDEX IF NOT EXISTS idx_validation_runs_created ON validation_runs (created_at DESC);

CREATE TABLE IF NOT EXISTS stage_results (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES validation_runs (id) ON DELETE CASCADE,
	stage TEXT NOT NULL,
	iteration INTEGER NOT NULL CHECK (iteration >= 1),
	status TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL,
	issue_count INTEGER NOT NULL DEFAULT 0,
	critical_count INTEGER NOT NULL DEFAULT 0,
	issues JSONB NOT NULL DEFAULT '[]',
	corrections JSONB NOT NULL DEFAULT '[]',
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, stage, iteration)
);
`

const migrationV2Artifacts = `
CREATE TABLE IF NOT EXISTS artifacts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	run_id UUID NOT NULL REFERENCES validation_runs (id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	content JSONB,
	text_content TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, name)
);
`
