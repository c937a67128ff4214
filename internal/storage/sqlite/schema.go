package sqlite

// Schema contains the SQL statements to create the database schema.
// All statements are idempotent (IF NOT EXISTS) so the schema can be applied
// on every open.
const Schema = `
-- Contacts table: core contact storage with follow-up workflow state
CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    event TEXT,
    industry TEXT,
    interests TEXT, -- JSON array
    is_quick_tag INTEGER NOT NULL DEFAULT 0,

    -- Follow-up workflow
    follow_up_status TEXT NOT NULL DEFAULT 'none',
    follow_up_due_date TIMESTAMP,
    follow_up_date TIMESTAMP,
    snoozed_until TIMESTAMP,

    -- Contact details (opaque to the aggregation core)
    email TEXT,
    phone TEXT,
    company TEXT,
    title TEXT,
    notes TEXT,

    -- Timestamps
    tagged_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contacts_tagged_at ON contacts(tagged_at);
CREATE INDEX IF NOT EXISTS idx_contacts_event ON contacts(event);
CREATE INDEX IF NOT EXISTS idx_contacts_status ON contacts(follow_up_status);

-- Cards table: named two-sided card variants, opaque JSON payloads
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    front TEXT NOT NULL DEFAULT '{}',
    back TEXT NOT NULL DEFAULT '{}',
    is_default INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Settings table: key-value store for user configuration
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
