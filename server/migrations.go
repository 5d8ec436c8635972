package server

// migrate runs database migrations
func (s *Server) migrate() error {
	migrations := []string{
		migrationUsers,
		migrationAuthSessions,
		migrationProfiles,
		migrationLabels,
		migrationStudySessions,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username VARCHAR(255) UNIQUE NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
`

const migrationAuthSessions = `
CREATE TABLE IF NOT EXISTS auth_sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id),
    token VARCHAR(64) UNIQUE NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_auth_sessions_token ON auth_sessions(token);
`

const migrationProfiles = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID UNIQUE NOT NULL REFERENCES users(id),
    display_name TEXT NOT NULL DEFAULT '',
    weekly_goal_min INTEGER NOT NULL DEFAULT 0,
    theme TEXT NOT NULL DEFAULT '',
    stopwatch_cap_min INTEGER NOT NULL DEFAULT 0,
    ambient_sound TEXT NOT NULL DEFAULT '',
    island_xp_sec BIGINT NOT NULL DEFAULT 0,
    garden_growth_sec BIGINT NOT NULL DEFAULT 0,
    tree_type TEXT NOT NULL DEFAULT 'apple',
    harvested_on_tree BIGINT NOT NULL DEFAULT 0,
    fruit_collection JSONB NOT NULL DEFAULT '{}',
    updated_ms BIGINT NOT NULL DEFAULT 0
);
`

const migrationLabels = `
CREATE TABLE IF NOT EXISTS labels (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id),
    local_id TEXT NOT NULL,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    favorite BOOLEAN NOT NULL DEFAULT FALSE,
    created_ms BIGINT NOT NULL DEFAULT 0,
    updated_ms BIGINT NOT NULL DEFAULT 0,
    UNIQUE(user_id, local_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_labels_user_name ON labels(user_id, lower(name));
`

const migrationStudySessions = `
CREATE TABLE IF NOT EXISTS study_sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id),
    client_id TEXT NOT NULL,
    started_ms BIGINT,
    ended_ms BIGINT,
    duration_sec INTEGER NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    method TEXT NOT NULL DEFAULT 'manual',
    reward_mode TEXT NOT NULL DEFAULT 'island',
    updated_ms BIGINT NOT NULL DEFAULT 0,
    UNIQUE(user_id, client_id)
);

CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id);
`
