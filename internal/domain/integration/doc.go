// Package integration contains the marketplace synchronization bounded context.
//
// Key concepts:
//   - Marketplace: a connected external sales channel with typed settings and a sync watermark
//   - MarketplaceClient: port for talking to one marketplace's REST surface
//   - RecordNormalizer: port mapping loosely typed payloads into canonical records
//   - SyncResult: aggregated outcome of one sync run
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
