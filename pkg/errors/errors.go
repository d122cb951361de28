// Lodestar: a multi-provider manga search engine with adaptive failover.
// Copyright (C) 2025 Lodestar contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package errors

import stderrors "errors"

var (
	As     = stderrors.As
	Is     = stderrors.Is
	Unwrap = stderrors.Unwrap
	New    = stderrors.New
)

var (
	ErrNotFound     = stderrors.New("resource not found")
	ErrBadRequest   = stderrors.New("bad request")
	ErrServerError  = stderrors.New("server error")
	ErrTimeout      = stderrors.New("operation timed out")
	ErrRateLimit    = stderrors.New("rate limit exceeded")
	ErrBlocked      = stderrors.New("access blocked by provider")
	ErrNetworkIssue = stderrors.New("network connection issue")
	ErrUnsupported  = stderrors.New("operation not supported by provider")
	ErrInvalidInput = stderrors.New("invalid input")
	ErrNoProvider   = stderrors.New("no such provider")
	ErrUnavailable  = stderrors.New("provider temporarily unavailable")
)

func IsNotFound(err error) bool    { return Is(err, ErrNotFound) }
func IsTimeouted(err error) bool   { return Is(err, ErrTimeout) }
func IsRateLimited(err error) bool { return Is(err, ErrRateLimit) }
func IsBlocked(err error) bool     { return Is(err, ErrBlocked) }
func IsUnsupported(err error) bool { return Is(err, ErrUnsupported) }
