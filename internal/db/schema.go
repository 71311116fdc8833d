package db

import "context"

// InitSchema creates the tables the services expect. Idempotent, run at startup.
func InitSchema(ctx context.Context, q Querier) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','admin')),
		date_of_birth DATE,
		parent_email TEXT NOT NULL DEFAULT '',
		profile_picture_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS tours (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		registration_deadline TIMESTAMPTZ NOT NULL,
		participant_limit INT NOT NULL CHECK (participant_limit > 0),
		duration TEXT NOT NULL DEFAULT '',
		elevation_gain INT NOT NULL DEFAULT 0 CHECK (elevation_gain >= 0),
		fee NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (fee >= 0),
		leader_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS tour_participants (
		tour_id TEXT NOT NULL REFERENCES tours(id),
		user_id TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (tour_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		quantity_available INT NOT NULL CHECK (quantity_available >= 0),
		price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
		sizes JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS material_reservations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		material_id TEXT NOT NULL REFERENCES materials(id),
		quantity_reserved INT NOT NULL CHECK (quantity_reserved >= 1),
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
		reservation_date TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_material ON material_reservations (material_id, reservation_date DESC);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS post_comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES posts(id),
		content TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		uploader_id TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := q.Exec(ctx, schema)
	return err
}
