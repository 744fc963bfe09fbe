// SPDX-License-Identifier: MIT

package batch

import "errors"

// ErrScenarioPanic marks a scenario whose task panicked.
var ErrScenarioPanic = errors.New("batch: scenario panicked")
