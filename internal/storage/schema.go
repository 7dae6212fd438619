package storage

const schema = `
CREATE TABLE IF NOT EXISTS claims (
	fingerprint  TEXT PRIMARY KEY,
	id           TEXT NOT NULL,
	text         TEXT NOT NULL,
	submitted_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS verdicts (
	seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
	claim_id             TEXT NOT NULL,
	fingerprint          TEXT NOT NULL,
	label                TEXT NOT NULL,
	aggregate_score      REAL NOT NULL,
	aggregate_confidence REAL NOT NULL,
	contributing         TEXT NOT NULL,
	explanation          TEXT NOT NULL,
	generated_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_fingerprint ON verdicts(fingerprint, seq);

CREATE TABLE IF NOT EXISTS reputations (
	user_id            TEXT PRIMARY KEY,
	score              REAL NOT NULL,
	total_feedback     INTEGER NOT NULL DEFAULT 0,
	rejected_feedback  INTEGER NOT NULL DEFAULT 0,
	last_window_start  TIMESTAMP NOT NULL,
	requests_in_window INTEGER NOT NULL DEFAULT 0,
	updated_at         TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS unsolved_queries (
	fingerprint     TEXT PRIMARY KEY,
	claim_id        TEXT NOT NULL,
	first_seen_at   TIMESTAMP NOT NULL,
	last_checked_at TIMESTAMP NOT NULL,
	check_count     INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_status ON unsolved_queries(status);

CREATE TABLE IF NOT EXISTS feedback_events (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	claim_id    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	text        TEXT NOT NULL,
	rating      INTEGER NOT NULL,
	accepted    INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	quality     REAL NOT NULL,
	decided_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_fingerprint ON feedback_events(fingerprint, accepted);

CREATE TABLE IF NOT EXISTS alert_dispatches (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	claim_id     TEXT NOT NULL,
	channel      TEXT NOT NULL,
	batch_id     TEXT NOT NULL,
	attempt      INTEGER NOT NULL,
	delivered_at TIMESTAMP,
	failed_at    TIMESTAMP,
	error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_dispatches_batch ON alert_dispatches(batch_id);
`
