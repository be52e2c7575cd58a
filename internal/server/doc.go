// Package server provides the HTTP API of MorpheusAI.
//
// # Endpoints
//
// Sessions:
//
//	GET    /api/sessions                    list sessions (?userId=)
//	POST   /api/sessions                    create a session
//	GET    /api/sessions/{id}               get a session
//	PATCH  /api/sessions/{id}               update session metadata
//	DELETE /api/sessions/{id}               delete a session
//	GET    /api/sessions/{id}/messages      message log (?limit=)
//	POST   /api/sessions/{id}/messages      route a message through the supervisor
//	GET    /api/sessions/{id}/routed        routing audit log
//	POST   /api/sessions/{id}/user-control  toggle user control mode
//
// Direct worker endpoints bypass routing and follow the same sandbox rules:
//
//	POST /api/terminal/execute
//	POST /api/web/{browse,screenshot,extract,search}
//	POST /api/editor/{list,read,write,edit,delete,create,process}
//	POST /api/planner/{create,update}  GET /api/planner/list  GET /api/planner/plan/{id}
//	POST /api/tool/{execute,register,apikey,process}  GET /api/tool/list
//	GET  /api/agents
//
// Realtime:
//
//	GET /api/event?session=<id>&types=<a,b>  server-sent events from the event bus
//	GET /api/ws                  websocket rooms keyed by session id
//
// Direct endpoints answer with the worker Result as JSON. The status code
// reflects the Result's error code; the body always carries the Result.
// Other failures use the ErrorResponse envelope.
package server
