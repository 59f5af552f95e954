package core

// UnknownBucket is the sentinel bucket for entries whose operation date is
// missing or unparseable. It is never mixed into dated buckets and is
// excluded from date-scoped reports.
const UnknownBucket BucketKey = "SIN_FECHA"

// BucketKey routes an entry to its day ledger file: a compact YYYYMMDD date
// or the unknown-date sentinel.
type BucketKey string

// Bucket returns the day bucket for the date.
func (d Date) Bucket() BucketKey {
	if d.IsUnknown() {
		return UnknownBucket
	}
	return BucketKey(d.Format("20060102"))
}

// BucketEntries groups entries by operation date, preserving the original
// relative order inside each bucket. The returned keys are in first-seen
// order so callers touch files deterministically.
func BucketEntries(entries []Entry) (map[BucketKey][]Entry, []BucketKey) {
	buckets := make(map[BucketKey][]Entry)
	var keys []BucketKey
	for _, e := range entries {
		key := e.Fecha.Bucket()
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], e)
	}
	return buckets, keys
}
