/*
Package maglev implements Maglev consistent hashing lookup table.

Maglev maps objects from a very big set of values (e.g. client address or
request id) to one of a small set of backends (e.g. server address) through a
fixed size lookup table. Looking up a backend is a single hash and an array
access. The word "consistent" means that different machines or processes
produce the same table for the same set of backends without any state
exchange, and that adding or removing one backend changes the destination of
only a small fraction of objects.

For more theory about the subject please see the original paper:
https://research.google.com/pubs/pub44824.html

The table is built in two steps. First, every backend gets its own
permutation of table slots derived from two independent hashes of its name
(offset and skip). Then backends take turns, in canonical order of their
names, claiming the next unclaimed slot from their permutation until every
slot is owned. Backends are always sorted before the build, so tables are
equal no matter in which order backends were added.

Table size must be a prime number; it is also the upper bound for the number
of backends. The bigger the size relative to the number of backends, the more
equal distribution of objects the table produces and the more time is needed
to rebuild it. SizeFor() suggests a size for a given number of backends.

Any change of the backend set rebuilds the whole table. The new table is
prepared aside and then swapped in, so Get() calls running concurrently with
a change observe either old or new table, but never a partially built one.
*/
package maglev
