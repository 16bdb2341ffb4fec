/*
Package servers runs the gateway HTTP server.

A Server mounts the routes of one or more handlers behind the access-log
middleware and adds the operational endpoints:

	GET /livez     liveness probe
	GET /readyz    readiness probe, 503 while draining
	GET /drain     mark the server not ready ahead of a shutdown
	GET /undrain   mark the server ready again

With EnablePprof set, the profiler is mounted under /debug. When MetricsAddr
is set, Prometheus metrics are served from a separate listener.

	server, err := servers.New(cfg, gatewayhandler.NewHandler(gw, logger))
	if err != nil {
	    return err
	}
	server.RunInBackground()
	defer server.Shutdown()
*/
package servers
