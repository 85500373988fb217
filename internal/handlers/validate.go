// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"menudir/internal/directory"
)

// Column limits of the directory tables.
const (
	maxRestaurantNameLen = 250
	maxItemNameLen       = 80
	maxItemDescLen       = 250
	maxItemPriceLen      = 8
	maxItemCourseLen     = 250
	maxCommentTitleLen   = 80
	maxCommentBodyLen    = 250
	maxCommentNameLen    = 80
	maxCodeLen           = 10
)

// tooLong returns a message when value exceeds max runes, or "".
func tooLong(field, value string, max int) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s is too long (max %d characters).", field, max)
	}
	return ""
}

// firstProblem returns the first non-empty message.
func firstProblem(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}

// validateRestaurant checks the restaurant form and returns the first error found.
func validateRestaurant(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	return tooLong("Name", strings.TrimSpace(name), maxRestaurantNameLen)
}

// validateMenuItem checks menu item inputs. Name may be empty on edit,
// where an empty field keeps its current value.
func validateMenuItem(in directory.MenuItemInput, requireName bool) string {
	if requireName && strings.TrimSpace(in.Name) == "" {
		return "Name is required."
	}
	return firstProblem(
		tooLong("Name", strings.TrimSpace(in.Name), maxItemNameLen),
		tooLong("Description", strings.TrimSpace(in.Description), maxItemDescLen),
		tooLong("Price", strings.TrimSpace(in.Price), maxItemPriceLen),
		tooLong("Course", strings.TrimSpace(in.Course), maxItemCourseLen),
	)
}

// validateComment checks comment form inputs.
func validateComment(in directory.CommentInput) string {
	if strings.TrimSpace(in.Title) == "" {
		return "Title is required."
	}
	return firstProblem(
		tooLong("Title", strings.TrimSpace(in.Title), maxCommentTitleLen),
		tooLong("Comment", strings.TrimSpace(in.Description), maxCommentBodyLen),
		tooLong("Name", strings.TrimSpace(in.Name), maxCommentNameLen),
	)
}

// normalizeCode strips the spaces authenticator apps show between digit groups.
func normalizeCode(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(code) > maxCodeLen {
		return ""
	}
	return code
}
