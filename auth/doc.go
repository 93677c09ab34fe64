// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides code generation and request verification utilities.

# Verification Codes

Code values are drawn from a fixed alphabet with crypto/rand:

	value, err := auth.GenerateCode(auth.CodeAlphabet, 6)

CodeAlphabet leaves out look-alike characters. Sampling rejects bytes past
the largest multiple of the alphabet length, so every character is equally
likely for any alphabet up to 256 characters.

# Admin Key

Board operator actions (advancing the queue) require the configured key:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

# Twilio Webhooks

Inbound SMS webhooks are signed by Twilio with the account auth token:

	err := auth.ValidateTwilioSignature(token, fullURL, r.PostForm, sig)

# Fingerprints

Phone numbers never reach the logs in the clear:

	slog.Info("checked in", "phone", auth.Fingerprint(phone, salt))
*/
package auth
