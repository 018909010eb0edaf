/*
Package validation holds the pure rule sets that guard the workflow engine.

  - ValidateDefinition decides whether a workflow definition is well formed.
  - ValidateExecution decides whether an action may run against an instance.

Both accumulate every violated rule instead of stopping at the first one, and both return a
Result rather than an error: the caller decides whether to reject.
*/
package validation
