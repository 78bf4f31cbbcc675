package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS jurisdictions (
    key                  TEXT PRIMARY KEY,
    slug                 TEXT NOT NULL,
    name                 TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    province             TEXT NOT NULL,
    year                 TEXT,
    financial_year       TEXT,
    file_path            TEXT NOT NULL,
    spending             REAL,
    employees            INTEGER,
    debt_interest        REAL,
    net_debt             REAL,
    total_debt           REAL,
    population           INTEGER,
    departments          INTEGER,
    ministries           INTEGER,
    sankey_spending      REAL,
    sankey_revenue       REAL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jurisdictions_province ON jurisdictions(province);
CREATE INDEX IF NOT EXISTS idx_jurisdictions_file ON jurisdictions(file_path);
`
