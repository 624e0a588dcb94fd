// Package model defines the declarative wizard model: field specs with a closed
// set of kinds, the steps that own them, and the Value variant that carries a
// field's current content. NewForm validates ownership up front so a field that
// is unowned or owned twice is rejected at construction rather than discovered
// while a user is halfway through the wizard. Definitions can be authored in
// YAML or JSON and loaded with LoadDefinition.
package model
