// Package planner implements the Planner worker, which turns goals into
// structured multi-step plans and keeps them up to date.
//
// Plans are drafted by the completion service as JSON. Replies are parsed
// leniently: a fenced json block, then the whole reply, then a fenced
// "plan" markdown block. Saved plans persist in storage under plans/<id>.
package planner
