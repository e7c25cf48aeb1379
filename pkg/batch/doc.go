// Package batch fetches rosters for one slice of the team directory.
//
// A batch covers teams [cursor, min(cursor+batchSize, len(teams))). All roster
// requests of the slice are issued in parallel (bounded by MaxConcurrency) and
// FetchBatch returns once every request has finished or failed. A team whose
// roster cannot be fetched is logged, counted and reported in Batch.Failed; it
// never fails the batch. NextCursor is always the end of the slice, so
// retrying a cursor range yields the same players.
//
// Example usage:
//
//	fetcher := batch.NewFetcher(source, batch.DefaultConfig())
//	b, err := fetcher.FetchBatch(ctx, teams, 0, 10)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%d players, next cursor %d\n", len(b.Players), b.NextCursor)
package batch
