package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"sporthub-service/internal/logger"
)

// Connect opens and pings the database.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return database, nil
}

// Migrate applies the schema. Change notifications for the two message
// tables are emitted by triggers so that every subscriber sees inserts,
// updates and deletes alike.
func Migrate(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            phone TEXT NOT NULL UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            sport TEXT NOT NULL,
            creator_id INT NOT NULL,
            is_private BOOLEAN NOT NULL DEFAULT FALSE,
            photo_url TEXT,
            max_members INT,
            rules TEXT,
            tags TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(group_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS group_messages (
            id SERIAL PRIMARY KEY,
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            sender_id INT NOT NULL,
            content TEXT NOT NULL,
            msg_type TEXT NOT NULL DEFAULT 'text',
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS direct_messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            recipient_id INT NOT NULL,
            content TEXT NOT NULL,
            msg_type TEXT NOT NULL DEFAULT 'text',
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_invites (
            id SERIAL PRIMARY KEY,
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            inviter_id INT NOT NULL,
            invitee_id INT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS join_requests (
            id SERIAL PRIMARY KEY,
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_group_messages_group_created
            ON group_messages (group_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_direct_messages_recipient
            ON direct_messages (recipient_id, read, created_at);`,
		`CREATE OR REPLACE FUNCTION notify_group_messages() RETURNS trigger AS $$
        DECLARE
            gid INT;
        BEGIN
            IF TG_OP = 'DELETE' THEN
                gid := OLD.group_id;
            ELSE
                gid := NEW.group_id;
            END IF;
            PERFORM pg_notify('group_messages_changed', gid::text);
            RETURN NULL;
        END;
        $$ LANGUAGE plpgsql;`,
		`CREATE OR REPLACE FUNCTION notify_direct_messages() RETURNS trigger AS $$
        DECLARE
            sid INT;
            rid INT;
        BEGIN
            IF TG_OP = 'DELETE' THEN
                sid := OLD.sender_id;
                rid := OLD.recipient_id;
            ELSE
                sid := NEW.sender_id;
                rid := NEW.recipient_id;
            END IF;
            PERFORM pg_notify('direct_messages_changed', sid::text || ':' || rid::text);
            RETURN NULL;
        END;
        $$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS trg_group_messages_notify ON group_messages;`,
		`CREATE TRIGGER trg_group_messages_notify
            AFTER INSERT OR UPDATE OR DELETE ON group_messages
            FOR EACH ROW EXECUTE FUNCTION notify_group_messages();`,
		`DROP TRIGGER IF EXISTS trg_direct_messages_notify ON direct_messages;`,
		`CREATE TRIGGER trg_direct_messages_notify
            AFTER INSERT OR UPDATE OR DELETE ON direct_messages
            FOR EACH ROW EXECUTE FUNCTION notify_direct_messages();`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	logger.Info().Msg("database migrations applied")
	return nil
}
