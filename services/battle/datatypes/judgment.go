// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "github.com/google/uuid"

// JudgmentCreate is a user-submitted judgment for one round. The winner must
// be one of the battle's two rappers; the engine rejects anything else.
type JudgmentCreate struct {
	RoundID  uuid.UUID `json:"round_id"`
	Winner   string    `json:"winner" binding:"required"`
	Feedback string    `json:"feedback,omitempty"`
}
