package gtfs2neo4j

import (
	"context"
	"fmt"
)

func (r *run) importAgencies(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)
	err := r.eachRow(ctx, agencyTable, &stats, func(props Props, _ []fieldError) {
		if gw.createNode(ctx, LabelAgency, props) {
			r.agencyIDs = append(r.agencyIDs, props["agency_id"])
		}
	})
	return stats, err
}

func (r *run) importRoutes(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)
	err := r.eachRow(ctx, routesTable, &stats, func(props Props, _ []fieldError) {
		if !gw.createNode(ctx, LabelRoute, props) {
			return
		}

		agencyID := props["agency_id"]
		if agencyID == nil && len(r.agencyIDs) == 1 {
			// agency_id may be omitted when the feed has a single agency
			agencyID = r.agencyIDs[0]
		}
		routeID := props["route_id"]
		if agencyID == nil || routeID == nil {
			stats.Skipped++
			r.log.Warn("Route has no resolvable agency", "route_id", formatValue(routeID))
			return
		}
		gw.createEdge(ctx, ref(LabelAgency, "agency_id", agencyID), RelOperates, ref(LabelRoute, "route_id", routeID))
	})
	return stats, err
}

func (r *run) importTrips(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)
	err := r.eachRow(ctx, tripsTable, &stats, func(props Props, _ []fieldError) {
		if !gw.createNode(ctx, LabelTrip, props) {
			return
		}

		routeID, tripID := props["route_id"], props["trip_id"]
		if routeID == nil || tripID == nil {
			stats.Failures++
			r.log.Error("Trip is missing route_id or trip_id", "props", formatProps(props))
			return
		}
		gw.createEdge(ctx, ref(LabelRoute, "route_id", routeID), RelUses, ref(LabelTrip, "trip_id", tripID))
	})
	return stats, err
}

type parentLink struct {
	stop   any
	parent any
}

func (r *run) importStops(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)

	// parent_station may reference a stop later in the file, so parents are
	// linked once every stop exists.
	var parents []parentLink
	err := r.eachRow(ctx, stopsTable, &stats, func(props Props, _ []fieldError) {
		if !r.clip.keep(props) {
			stats.Skipped++
			return
		}
		if !gw.createNode(ctx, LabelStop, props) {
			return
		}
		stopID, parent := props["stop_id"], props["parent_station"]
		if stopID != nil && parent != nil {
			parents = append(parents, parentLink{stop: stopID, parent: parent})
		}
	})
	if err != nil {
		return stats, err
	}

	linkedBefore := stats.Edges
	for _, link := range parents {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if r.clip.clipped(link.parent) {
			stats.Skipped++
			continue
		}
		gw.createEdge(ctx, ref(LabelStop, "stop_id", link.stop), RelPartOf, ref(LabelStop, "stop_id", link.parent))
	}
	r.log.Info(fmt.Sprintf("Linked %d of %d stops to parent stations", stats.Edges-linkedBefore, len(parents)))
	return stats, nil
}

func (r *run) importStopTimes(ctx context.Context) (Stats, error) {
	var stats Stats
	gw := r.gateway(&stats)
	err := r.eachRow(ctx, stopTimesTable, &stats, func(props Props, errs []fieldError) {
		tripID, stopID := props["trip_id"], props["stop_id"]
		if tripID == nil || stopID == nil {
			stats.Failures++
			r.log.Error("Stop time is missing trip_id or stop_id", "props", formatProps(props))
			return
		}
		if r.clip.clipped(stopID) {
			stats.Skipped++
			return
		}
		// stop_sequence is half of the PRECEDES lookup key, so a fallback 0
		// would be mistaken for a real first stop.
		if failedColumn(errs, "stop_sequence") {
			delete(props, "stop_sequence")
		}

		created := gw.createNodeWithEdges(ctx, LabelStopTime, props, []EdgeTo{
			{Rel: RelPartOfTrip, Target: ref(LabelTrip, "trip_id", tripID)},
			{Rel: RelLocatedAt, Target: ref(LabelStop, "stop_id", stopID)},
		})
		seq, ok := props["stop_sequence"].(int64)
		if created && ok {
			if _, seen := r.sequences[tripID]; !seen {
				r.tripOrder = append(r.tripOrder, tripID)
			}
			r.sequences[tripID] = append(r.sequences[tripID], seq)
		}
	})
	return stats, err
}
