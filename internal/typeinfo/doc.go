// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to the Go types of parameter and result
records. As much as possible, reflection code is limited to this package. It
maps struct fields to placeholder and column names and resolves, once per type,
the semantic kind that decides how each field is bound and decoded.
*/
package typeinfo
