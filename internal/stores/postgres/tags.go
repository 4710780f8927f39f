package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/tags"
)

var targetTables = map[tags.Kind]string{
	tags.KindProduct:    "products",
	tags.KindCollection: "collections",
}

func (s *Store) InsertTag(ctx context.Context, nt tags.NewTag) (tags.Tag, error) {
	t := tags.Tag{Label: nt.Label}
	err := s.db.QueryRowContext(ctx, `INSERT INTO tags (label) VALUES ($1) RETURNING id`, nt.Label).Scan(&t.ID)
	if err != nil {
		return tags.Tag{}, classify(fmt.Errorf("failed to insert tag: %w", err))
	}
	return t, nil
}

func (s *Store) GetTag(ctx context.Context, id int64) (tags.Tag, error) {
	var t tags.Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, label FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return tags.Tag{}, apperr.NotFound("id", "No tag with the given ID was found.")
	}
	if err != nil {
		return tags.Tag{}, classify(fmt.Errorf("failed to query tag: %w", err))
	}
	return t, nil
}

func (s *Store) ListTags(ctx context.Context) ([]tags.Tag, error) {
	return s.queryTags(ctx, `SELECT id, label FROM tags ORDER BY id`)
}

func (s *Store) TagTarget(ctx context.Context, tagID int64, target tags.Target) (tags.TaggedItem, error) {
	ti := tags.TaggedItem{TagID: tagID, Target: target}
	err := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO tagged_items (tag_id, target_kind, target_id) VALUES ($1, $2, $3)
			ON CONFLICT (tag_id, target_kind, target_id) DO NOTHING
			RETURNING id
		)
		SELECT id FROM inserted
		UNION ALL
		SELECT id FROM tagged_items WHERE tag_id = $1 AND target_kind = $2 AND target_id = $3
		LIMIT 1`, tagID, target.Kind.String(), target.ID).Scan(&ti.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a concurrent insert of the same row committed after this statement's snapshot
		return tags.TaggedItem{}, apperr.Conflict("tag_id", "target was tagged concurrently", err)
	case pgCode(err) == codeForeignKeyViolation:
		return tags.TaggedItem{}, apperr.NotFound("tag_id", "No tag with the given ID was found.")
	case err != nil:
		return tags.TaggedItem{}, classify(fmt.Errorf("failed to tag target: %w", err))
	}
	return ti, nil
}

func (s *Store) TagsFor(ctx context.Context, target tags.Target) ([]tags.Tag, error) {
	return s.queryTags(ctx, `
		SELECT t.id, t.label FROM tags t JOIN tagged_items ti ON ti.tag_id = t.id
		WHERE ti.target_kind = $1 AND ti.target_id = $2 ORDER BY t.id`, target.Kind.String(), target.ID)
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]tags.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query tags: %w", err))
	}
	defer rows.Close()

	out := []tags.Tag{}
	for rows.Next() {
		var t tags.Tag
		if err := rows.Scan(&t.ID, &t.Label); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, classify(rows.Err())
}

func (s *Store) LikeTarget(ctx context.Context, userID string, target tags.Target) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (user_id, target_kind, target_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_kind, target_id) DO NOTHING`, userID, target.Kind.String(), target.ID)
	if err != nil {
		return false, classify(fmt.Errorf("failed to like target: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (s *Store) CountLikes(ctx context.Context, target tags.Target) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM likes WHERE target_kind = $1 AND target_id = $2`,
		target.Kind.String(), target.ID).Scan(&n)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to count likes: %w", err))
	}
	return n, nil
}

func (s *Store) TargetExists(ctx context.Context, target tags.Target) (bool, error) {
	table, ok := targetTables[target.Kind]
	if !ok {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, target.ID).Scan(&exists)
	if err != nil {
		return false, classify(fmt.Errorf("failed to check %s: %w", target.Kind, err))
	}
	return exists, nil
}

// dropTarget removes the tags and likes of an entity about to be deleted.
func dropTarget(ctx context.Context, q querier, target tags.Target) error {
	for _, query := range []string{
		`DELETE FROM tagged_items WHERE target_kind = $1 AND target_id = $2`,
		`DELETE FROM likes WHERE target_kind = $1 AND target_id = $2`,
	} {
		if _, err := q.ExecContext(ctx, query, target.Kind.String(), target.ID); err != nil {
			return fmt.Errorf("failed to drop %s %d associations: %w", target.Kind, target.ID, err)
		}
	}
	return nil
}
