package gtfs2neo4j

import (
	"context"
	"fmt"
	"slices"
)

// linkSequences joins consecutive stop times of each trip with PRECEDES.
// Trips are handled one at a time so no store query spans more than one
// pair of stop times.
func (r *run) linkSequences(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)

	for i, tripID := range r.tripOrder {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for _, pair := range precedingPairs(r.sequences[tripID]) {
			from := NodeRef{Label: LabelStopTime, Key: Props{"trip_id": tripID, "stop_sequence": pair[0]}}
			to := NodeRef{Label: LabelStopTime, Key: Props{"trip_id": tripID, "stop_sequence": pair[1]}}
			gw.createEdge(ctx, from, RelPrecedes, to)
		}
		if r.progressEvery > 0 && (i+1)%r.progressEvery == 0 {
			r.log.Info(fmt.Sprintf("Entities: %d", r.total.Entities()+stats.Entities()), "trips", i+1)
		}
	}
	r.sequences = nil
	r.tripOrder = nil
	return stats, nil
}

// precedingPairs returns every (a, b) in seqs with b == a+1, in increasing
// order. seqs is sorted in place.
func precedingPairs(seqs []int64) [][2]int64 {
	slices.Sort(seqs)
	seqs = slices.Compact(seqs)
	var pairs [][2]int64
	for i := 0; i+1 < len(seqs); i++ {
		if seqs[i+1] == seqs[i]+1 {
			pairs = append(pairs, [2]int64{seqs[i], seqs[i+1]})
		}
	}
	return pairs
}
