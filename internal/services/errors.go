// Package services defines the business logic for complaint intake,
// administration, voting, and the activity feed. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into HTTP status codes is performed at the handler layer. Store failures are
// not wrapped in sentinels — they propagate as-is and are rendered as generic
// internal errors without leaking detail.
package services

import "errors"

var (
	// ErrComplaintNotFound indicates that the targeted complaint id is unknown.
	ErrComplaintNotFound = errors.New("complaint not found")

	// ErrTextTooShort is returned when a submitted complaint body is shorter
	// than the minimum of 10 characters.
	ErrTextTooShort = errors.New("complaint must be at least 10 characters")

	// ErrInvalidStatus is returned when a status update names a value outside
	// {new, in_progress, resolved}.
	ErrInvalidStatus = errors.New("invalid status value")

	// ErrInvalidVote is returned when a vote request carries a type other
	// than upvote or downvote.
	ErrInvalidVote = errors.New("vote type must be upvote or downvote")

	// ErrAlreadyVoted is returned when an identified voter votes twice on the
	// same complaint. The first vote stands; nothing is mutated.
	ErrAlreadyVoted = errors.New("you have already voted on this complaint")

	// ErrEmptyComment is returned when a comment body is blank.
	ErrEmptyComment = errors.New("comment text is required")

	// ErrEmptyNote is returned when an admin note body is blank.
	ErrEmptyNote = errors.New("note text is required")

	// ErrEmptyDepartment is returned when a department assignment is blank.
	ErrEmptyDepartment = errors.New("department is required")
)
