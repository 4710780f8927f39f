// Package tags attaches labels and likes to catalog entities. The set of entities
// that can be tagged is closed: a Target names one of the known kinds plus its id.
package tags

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type Kind uint8

const (
	KindProduct Kind = iota + 1
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindProduct:
		return "product"
	case KindCollection:
		return "collection"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "product":
		return KindProduct, nil
	case "collection":
		return KindCollection, nil
	}
	return 0, fmt.Errorf("unknown taggable kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != KindProduct && k != KindCollection {
		return nil, fmt.Errorf("unknown taggable kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type Target struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

func ProductTarget(id int64) Target    { return Target{Kind: KindProduct, ID: id} }
func CollectionTarget(id int64) Target { return Target{Kind: KindCollection, ID: id} }

type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type NewTag struct {
	Label string `json:"label" validate:"required,max=255"`
}

type TaggedItem struct {
	ID     int64  `json:"id"`
	TagID  int64  `json:"tag_id"`
	Target Target `json:"target"`
}

type Repository interface {
	InsertTag(ctx context.Context, t NewTag) (Tag, error)
	GetTag(ctx context.Context, id int64) (Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	// TagTarget is idempotent per (tag, target).
	TagTarget(ctx context.Context, tagID int64, target Target) (TaggedItem, error)
	TagsFor(ctx context.Context, target Target) ([]Tag, error)
	// LikeTarget is idempotent per (user, target) and reports whether a like was added.
	LikeTarget(ctx context.Context, userID string, target Target) (bool, error)
	CountLikes(ctx context.Context, target Target) (int, error)
	TargetExists(ctx context.Context, target Target) (bool, error)
}

type Conf struct {
	repo     Repository
	validate *validator.Validate
}

func NewConf(repo Repository) (Conf, error) {
	if repo == nil {
		return Conf{}, errors.New("tag repository is nil")
	}
	return Conf{repo: repo, validate: validation.New()}, nil
}

func (c Conf) CreateTag(ctx context.Context, t NewTag) (Tag, error) {
	if err := c.validate.Struct(t); err != nil {
		return Tag{}, err
	}
	return c.repo.InsertTag(ctx, t)
}

func (c Conf) ListTags(ctx context.Context) ([]Tag, error) {
	return c.repo.ListTags(ctx)
}

func (c Conf) Tag(ctx context.Context, tagID int64, target Target) (TaggedItem, error) {
	if err := c.checkTarget(ctx, target); err != nil {
		return TaggedItem{}, err
	}
	if _, err := c.repo.GetTag(ctx, tagID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return TaggedItem{}, apperr.Validation("tag_id", fmt.Sprintf("Tag with ID %d does not exist.", tagID))
		}
		return TaggedItem{}, err
	}
	return c.repo.TagTarget(ctx, tagID, target)
}

func (c Conf) TagsFor(ctx context.Context, target Target) ([]Tag, error) {
	if err := c.checkTarget(ctx, target); err != nil {
		return nil, err
	}
	return c.repo.TagsFor(ctx, target)
}

func (c Conf) Like(ctx context.Context, userID string, target Target) (bool, error) {
	if err := c.checkTarget(ctx, target); err != nil {
		return false, err
	}
	return c.repo.LikeTarget(ctx, userID, target)
}

func (c Conf) CountLikes(ctx context.Context, target Target) (int, error) {
	if err := c.checkTarget(ctx, target); err != nil {
		return 0, err
	}
	return c.repo.CountLikes(ctx, target)
}

func (c Conf) checkTarget(ctx context.Context, target Target) error {
	ok, err := c.repo.TargetExists(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(target.Kind.String(), fmt.Sprintf("No %s with ID %d was found.", target.Kind, target.ID))
	}
	return nil
}
