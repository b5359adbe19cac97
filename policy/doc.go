// Package policy decides who may submit a retraction request and who may
// decide one. A Policy is immutable once built; membership of an open
// reviewer audience is looked up on every decision.
package policy
