// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sms interprets inbound text messages.

The first word of a message decides what happens:

	VOTE             vote for the post currently showing
	POST <message>   queue a message for the board
	<code>           check in with the code shown on the board
	<code> POST hi   check in, then run the command that follows

Commands are case-insensitive. Every outcome, including refusals such as
an invalid code or posting too often, is a reply string for the sender;
Handle only returns an error when storage fails.
*/
package sms
