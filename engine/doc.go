// Package engine declares the contract geobridge expects from an engine session.
//
// The session itself (process startup, connection, cooking) lives outside this
// module. Planners only need three capabilities from it:
//
//   - NodeManager: create and delete the shared-memory input operators
//   - ParmWriter: commit an upload by setting parameters or a preset
//   - AttributeReader: read attributes back from cooked geometry
//
// Every failure coming out of a session is wrapped into a *core.CallError and
// therefore matches core.ErrEngineCallFailed:
//
//	id, err := engine.CreateSOP(ctx, session, parent, engine.GeometryInputOperator, "")
//	if errors.Is(err, core.ErrEngineCallFailed) { ... }
package engine
