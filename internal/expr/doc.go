/*
Package expr rewrites a SQL statement with named placeholders into the
statement that is sent to the database. It covers everything relating to
placeholders and does not interact with databases.

# Parsing stage

The statement is parsed into a tree by package parse. The tree keeps the
statement text verbatim so that serializing it again yields the original
statement.

# Marking stage

The tree is walked and every placeholder occurrence is renamed to a unique
marker. Markers start with a random prefix that cannot collide with text the
user wrote, followed by the index of the occurrence in walk order. The names
discovered by the walk are kept, in walk order, so that they can be validated
against the parameter record.

# Substitution stage

The marked tree is serialized and the markers are replaced, in textual order,
with the positional placeholders of the target Style. The original name behind
each marker is recorded as the slot bound at that position.
*/
package expr
