// Package normalize turns raw catalog titles and platform names into
// stable comparison keys. The transforms are deterministic and total:
// the same raw input always produces the same output, because the
// results feed the catalog's uniqueness keys and the candidate cache
// key. Empty or unrecognizable input normalizes to the empty string.
package normalize
