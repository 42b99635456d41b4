package entity

import (
	"errors"
	"fmt"
)

var (
	ErrTargetMissing   = errors.New("either post_id or reel_id must be provided")
	ErrTargetAmbiguous = errors.New("only one of post_id or reel_id may be provided")
)

type TargetKind int

const (
	TargetPost TargetKind = iota + 1
	TargetReel
)

func (k TargetKind) String() string {
	switch k {
	case TargetPost:
		return "post"
	case TargetReel:
		return "reel"
	default:
		return "unknown"
	}
}

// Target is either a post or a reel. Comments and votes always point at exactly one of them.
type Target interface {
	Kind() TargetKind
	TargetID() ID
	fmt.Stringer

	target()
}

type PostTarget ID

func (t PostTarget) Kind() TargetKind { return TargetPost }
func (t PostTarget) TargetID() ID     { return ID(t) }
func (t PostTarget) String() string   { return fmt.Sprintf("post %d", ID(t)) }
func (PostTarget) target()            {}

type ReelTarget ID

func (t ReelTarget) Kind() TargetKind { return TargetReel }
func (t ReelTarget) TargetID() ID     { return ID(t) }
func (t ReelTarget) String() string   { return fmt.Sprintf("reel %d", ID(t)) }
func (ReelTarget) target()            {}

// TargetFromIDs builds a Target from a pair of optional ids of which exactly one must be set.
func TargetFromIDs(postID, reelID *ID) (Target, error) {
	switch {
	case postID != nil && reelID != nil:
		return nil, ErrTargetAmbiguous
	case postID != nil:
		return PostTarget(*postID), nil
	case reelID != nil:
		return ReelTarget(*reelID), nil
	default:
		return nil, ErrTargetMissing
	}
}

func targetColumns(t Target) (postID, reelID *ID) {
	id := t.TargetID()
	if t.Kind() == TargetReel {
		return nil, &id
	}
	return &id, nil
}
