package memory

import (
	"cmp"
	"context"
	"slices"

	"storefront/internal/apperr"
	"storefront/internal/tags"
)

func (s *Store) InsertTag(ctx context.Context, nt tags.NewTag) (tags.Tag, error) {
	var t tags.Tag
	err := s.write(ctx, func(st *state) error {
		st.seq.tag++
		t = tags.Tag{ID: st.seq.tag, Label: nt.Label}
		st.tags[t.ID] = t
		return nil
	})
	return t, err
}

func (s *Store) GetTag(ctx context.Context, id int64) (tags.Tag, error) {
	var t tags.Tag
	err := s.read(ctx, func(st *state) error {
		var ok bool
		if t, ok = st.tags[id]; !ok {
			return apperr.NotFound("id", "No tag with the given ID was found.")
		}
		return nil
	})
	return t, err
}

func (s *Store) ListTags(ctx context.Context) ([]tags.Tag, error) {
	out := []tags.Tag{}
	err := s.read(ctx, func(st *state) error {
		for _, t := range st.tags {
			out = append(out, t)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b tags.Tag) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) TagTarget(ctx context.Context, tagID int64, target tags.Target) (tags.TaggedItem, error) {
	var ti tags.TaggedItem
	err := s.write(ctx, func(st *state) error {
		if _, ok := st.tags[tagID]; !ok {
			return apperr.NotFound("tag_id", "No tag with the given ID was found.")
		}
		if !st.targetExists(target) {
			return apperr.NotFound(target.Kind.String(), "target does not exist")
		}
		for _, existing := range st.taggedItems {
			if existing.TagID == tagID && existing.Target == target {
				ti = existing
				return nil
			}
		}
		st.seq.taggedItem++
		ti = tags.TaggedItem{ID: st.seq.taggedItem, TagID: tagID, Target: target}
		st.taggedItems[ti.ID] = ti
		return nil
	})
	return ti, err
}

func (s *Store) TagsFor(ctx context.Context, target tags.Target) ([]tags.Tag, error) {
	out := []tags.Tag{}
	err := s.read(ctx, func(st *state) error {
		for _, ti := range st.taggedItems {
			if ti.Target == target {
				out = append(out, st.tags[ti.TagID])
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b tags.Tag) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) LikeTarget(ctx context.Context, userID string, target tags.Target) (bool, error) {
	var added bool
	err := s.write(ctx, func(st *state) error {
		if !st.targetExists(target) {
			return apperr.NotFound(target.Kind.String(), "target does not exist")
		}
		for _, l := range st.likes {
			if l.UserID == userID && l.Target == target {
				return nil
			}
		}
		st.seq.like++
		st.likes[st.seq.like] = likeRow{ID: st.seq.like, UserID: userID, Target: target}
		added = true
		return nil
	})
	return added, err
}

func (s *Store) CountLikes(ctx context.Context, target tags.Target) (int, error) {
	n := 0
	err := s.read(ctx, func(st *state) error {
		for _, l := range st.likes {
			if l.Target == target {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) TargetExists(ctx context.Context, target tags.Target) (bool, error) {
	var ok bool
	err := s.read(ctx, func(st *state) error {
		ok = st.targetExists(target)
		return nil
	})
	return ok, err
}

func (st *state) targetExists(t tags.Target) bool {
	switch t.Kind {
	case tags.KindProduct:
		_, ok := st.products[t.ID]
		return ok
	case tags.KindCollection:
		_, ok := st.collections[t.ID]
		return ok
	}
	return false
}
