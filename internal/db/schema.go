package db

// SchemaSQL contains the database schema initialization SQL.
// The precedent HNSW index dimension must match the embedding model
// (all-minilm:l6-v2, 384 dimensions).
const SchemaSQL = `
    -- ==========================================================================
    -- JOB TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS status ON job TYPE string
        ASSERT $value IN ["PENDING", "PROCESSING", "COMPLETE", "ERROR"];
    DEFINE FIELD IF NOT EXISTS complaint_text ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS frl_text ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS report ON job TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS error_message ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON job TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS job_status ON job FIELDS status;
    DEFINE INDEX IF NOT EXISTS job_created ON job FIELDS created_at;

    -- ==========================================================================
    -- PRECEDENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS precedent SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS case_id ON precedent TYPE string;
    DEFINE FIELD IF NOT EXISTS firm_name ON precedent TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS product_type ON precedent TYPE string;
    DEFINE FIELD IF NOT EXISTS key_themes ON precedent TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS fos_outcome ON precedent TYPE string;
    DEFINE FIELD IF NOT EXISTS full_text ON precedent TYPE string;
    DEFINE FIELD IF NOT EXISTS compensation_awarded ON precedent TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS redress_amount ON precedent TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS embedding ON precedent TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON precedent TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS precedent_case_id ON precedent FIELDS case_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS precedent_product ON precedent FIELDS product_type;
    DEFINE INDEX IF NOT EXISTS precedent_themes ON precedent FIELDS key_themes;
    DEFINE INDEX IF NOT EXISTS precedent_embedding ON precedent FIELDS embedding HNSW DIMENSION 384 DIST COSINE TYPE F32;
`
