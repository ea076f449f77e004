package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    email_address       TEXT NOT NULL,
    imap_host           TEXT NOT NULL,
    imap_port           INTEGER NOT NULL,
    username            TEXT NOT NULL,
    encrypted_password  TEXT NOT NULL DEFAULT '',
    allow_remote_images INTEGER NOT NULL DEFAULT 0,
    created_at          DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS oauth_credentials (
    account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    provider      TEXT NOT NULL,
    access_token  TEXT NOT NULL,
    refresh_token TEXT,
    expiry        DATETIME,
    scope         TEXT,
    updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (account_id, provider)
);

CREATE TABLE IF NOT EXISTS messages (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id          INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    seq                 INTEGER NOT NULL,
    external_id         TEXT,
    subject             TEXT,
    from_addr           TEXT,
    to_addrs            TEXT,
    received_at         DATETIME NOT NULL,
    body_plain          TEXT,
    body_html_raw       TEXT,
    body_html_sanitized TEXT,
    hidden              INTEGER NOT NULL DEFAULT 0,
    deleted_at          DATETIME,
    UNIQUE (account_id, seq)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_external
    ON messages(account_id, external_id) WHERE external_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS image_sources (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id  INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    src         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id  INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    action      TEXT NOT NULL,
    occurred_at DATETIME NOT NULL,
    note        TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_account ON messages(account_id);
CREATE INDEX IF NOT EXISTS idx_messages_received ON messages(received_at DESC);
CREATE INDEX IF NOT EXISTS idx_image_sources_message ON image_sources(message_id);
CREATE INDEX IF NOT EXISTS idx_audit_message ON audit_log(message_id);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS message_search USING fts5(
    subject, from_addr,
    content='messages', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO message_search(rowid, subject, from_addr)
    VALUES (new.id, new.subject, new.from_addr);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO message_search(message_search, rowid, subject, from_addr)
    VALUES ('delete', old.id, old.subject, old.from_addr);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO message_search(message_search, rowid, subject, from_addr)
    VALUES ('delete', old.id, old.subject, old.from_addr);
    INSERT INTO message_search(rowid, subject, from_addr)
    VALUES (new.id, new.subject, new.from_addr);
END;
`
