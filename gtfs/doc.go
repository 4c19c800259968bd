/*
Package gtfs holds the static schedule index: routes, stops and trips read
from an extracted GTFS directory, keyed by their natural ids.

The index is loaded wholesale and published atomically, so readers always
see one consistent table set even while a reload is in progress:

	idx := gtfs.NewIndex()
	if !idx.Load("data/gtfs_static") {
	    // directory missing; the relay keeps serving unenriched trains
	}

	train = idx.Enrich(train)

A missing or unparsable table only empties that table. Enrichment fills a
field only when the lookup hits, so a stale or partial dataset degrades to
absent fields rather than placeholder text.

Listing order is part of the contract: ListStops sorts by name then id,
ListRoutes sorts by id.
*/
package gtfs
