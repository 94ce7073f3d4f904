// Package exercise defines the Exercise aggregate and its owned sub-entities:
// the Field it is played on and the roster of Players.
//
// Each entity embeds *model.Model for its scalar fields and the save
// protocol. Exercise.Merge layers the structural merge of the owned field and
// player collection on top of the field-level model.Merge.
package exercise
