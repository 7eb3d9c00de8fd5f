package driver

// seriesFetch is the per-series iterator surface the aggregate consumes;
// series.Fetch satisfies it.
type seriesFetch interface {
	Next() bool
	Err() error
	Completed() int
	Close()
}

// Fetch aggregates the per-series fetch iterators of one driver-level
// retrieval into a single progress sequence over all images.
type Fetch struct {
	fetches []seriesFetch
	cur     int
	total   int

	err      error
	finished bool
	complete func()
	release  func()
}

// Next advances the retrieval one step across the driver's series. It
// returns false once every series has completed or a series failed.
func (f *Fetch) Next() bool {
	if f.finished || f.err != nil {
		return false
	}

	for f.cur < len(f.fetches) {
		sf := f.fetches[f.cur]
		if sf.Next() {
			return true
		}
		if err := sf.Err(); err != nil {
			f.err = err
			// Close the remaining series fetches so their completion
			// callbacks still fire.
			for _, other := range f.fetches {
				other.Close()
			}
			f.end(false)
			return false
		}
		f.cur++
	}

	f.end(true)
	return false
}

// Progress returns the completed fraction across every series, in [0, 1].
func (f *Fetch) Progress() float64 {
	if f.total == 0 {
		return 1
	}
	var done int
	for _, sf := range f.fetches {
		done += sf.Completed()
	}
	return float64(done) / float64(f.total)
}

// Total returns how many image reads the retrieval covers.
func (f *Fetch) Total() int { return f.total }

// Err returns the error that stopped the retrieval, if any.
func (f *Fetch) Err() error { return f.err }

// Close abandons an in-flight retrieval: partial data is discarded and the
// driver becomes available for the next fetch.
func (f *Fetch) Close() {
	if f.finished {
		return
	}
	for _, sf := range f.fetches {
		sf.Close()
	}
	f.end(false)
}

func (f *Fetch) end(completed bool) {
	if f.finished {
		return
	}
	f.finished = true
	if completed && f.complete != nil {
		f.complete()
	}
	if f.release != nil {
		f.release()
	}
}
