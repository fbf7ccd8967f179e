package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- PATTERN TABLE
    -- ==========================================================================
    -- One row per learned SQL query pattern. The record ID is the sha256
    -- hex digest of the normalized query text, so repeated recordings of
    -- the same query land on the same row.
    DEFINE TABLE IF NOT EXISTS pattern SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS query ON pattern TYPE string;
    DEFINE FIELD IF NOT EXISTS workspace_id ON pattern TYPE string;
    -- Dimension varies by embedding provider; ranking happens in Go, so
    -- no vector index is defined over this field.
    DEFINE FIELD IF NOT EXISTS embedding ON pattern TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS success_count ON pattern TYPE int DEFAULT 1;
    DEFINE FIELD IF NOT EXISTS execution_time ON pattern TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS result_count ON pattern TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS schema_context ON pattern TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON pattern TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS last_used ON pattern TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS pattern_workspace ON pattern FIELDS workspace_id;
    DEFINE INDEX IF NOT EXISTS pattern_last_used ON pattern FIELDS last_used;
    DEFINE INDEX IF NOT EXISTS pattern_success ON pattern FIELDS success_count;
`
