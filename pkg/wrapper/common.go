// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package wrapper

import (
	"errors"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

// contractBulkUnsupported builds the error returned when a wrapper
// layer is asked for BulkInsert but its inner index does not
// implement contract.BulkInserter (the trigram index never does).
func contractBulkUnsupported(op string) error {
	return kerrors.New(kerrors.Internal,
		"wrapped index does not support bulk_insert",
		"only the primary b+tree index implements BulkInserter",
		"call BulkInsert directly on a primary index stack", nil).WithOperation(op)
}

// kindOf extracts the Kind of err as a string for metric labels and
// log fields, or "unknown" when err is not a *kerrors.KotaError.
func kindOf(err error) string {
	var ke *kerrors.KotaError
	if errors.As(err, &ke) {
		return string(ke.Kind)
	}
	return "unknown"
}
