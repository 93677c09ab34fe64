// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package codes generates, rotates and validates one-time check-in codes.

# Classes

SMS codes (6 characters) are shown on the board and texted back by
attendees. They rotate once RotationPeriod has elapsed, and the previous
code keeps working until the new one is Grace old, so someone typing while
the board flips is not locked out.

QR codes (9 characters) are single use. A successful validation consumes
the code and mints the replacement immediately.

# Ordering

Each class is a chain of generations. The newest generation is the active
code; the store keeps (class, generation) and (class, value) unique, which
makes concurrent rotation a compare-and-swap: one insert wins, the others
collide and re-read.

	c, err := store.Current(ctx, models.ClassSMS)
	ok, err := store.Validate(ctx, models.ClassQR, scanned)
*/
package codes
