// Package retract provides a self-service content retraction workflow.
//
// A requester asks to delete content they authored; the request is recorded
// as pending and announced to reviewers. The first reviewer decision wins:
// approval runs the privileged deletion exactly once, denial closes the
// request. Requester, reviewers and an optional audit destination are
// notified of the outcome.
//
// End-users typically interact with the workflow via the Service facade
// exposed by the root package:
//
//	cfg, _ := retract.LoadConfig(ctx, "config.yaml")
//	srv, _ := retract.New(ctx, cfg, retract.WithLogger(logger))
//	srv.Start(ctx)
//	defer srv.Shutdown()
//	http.ListenAndServe(cfg.HTTP.Addr, srv.Handler())
package retract
