// Package repository implements MySQL persistence for users, rooms and
// reservations.  It defines sentinel error values that are reused
// across repositories so higher layers such as handlers can distinguish
// failure scenarios with errors.Is instead of inspecting messages.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// dependent records, such as hard-deleting a room that still has
// reservations.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create when the email address
// is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrRefNoExists is returned by UserRepo.Create when the identifier-of-
// record is already taken by another account.
var ErrRefNoExists = errors.New("ref_no already exists")

// ErrRoomCodeExists is returned by RoomRepo when the unique room code
// is already in use.
var ErrRoomCodeExists = errors.New("room code already exists")
