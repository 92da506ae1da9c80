// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import "errors"

// Sentinel errors for judgment validation. Handlers map these to HTTP
// status codes.
var (
	ErrRoundNotFound      = errors.New("round not found in battle")
	ErrRoundAlreadyJudged = errors.New("round has already been judged")
	ErrVersesMissing      = errors.New("round does not have both verses yet")
	ErrInvalidWinner      = errors.New("winner is not a contestant in this battle")
	ErrBattleCompleted    = errors.New("battle is already completed")
	ErrInvalidRoundNumber = errors.New("round number exceeds the battle length")
)
