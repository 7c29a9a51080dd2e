// Package sqlstore 以 SQL 表实现工作单元与各仓储契约
//
// 表结构在 sqlite 与 postgres 上通用：标识以 TEXT 保存 UUID，时间统一按 UTC 写入。
package sqlstore

import (
	"context"
	"fmt"

	core "ptvdata/data/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS language (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		order_number INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS type_code (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		code TEXT NOT NULL,
		UNIQUE (category, code)
	)`,
	`CREATE TABLE IF NOT EXISTS versioning (
		id TEXT PRIMARY KEY,
		unific_root_id TEXT NULL,
		version_major INTEGER NOT NULL,
		version_minor INTEGER NOT NULL,
		ignored BOOLEAN NOT NULL DEFAULT FALSE,
		created TIMESTAMP NOT NULL,
		created_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS ix_versioning_root ON versioning (unific_root_id, version_major, version_minor)`,
	`CREATE TABLE IF NOT EXISTS versioned_entity (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		sub_type TEXT NOT NULL DEFAULT '',
		unific_root_id TEXT NOT NULL,
		versioning_id TEXT NOT NULL REFERENCES versioning (id),
		publishing_status TEXT NOT NULL,
		organization_id TEXT NULL,
		modified TIMESTAMP NOT NULL,
		modified_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS ix_versioned_entity_root ON versioned_entity (kind, unific_root_id)`,
	`CREATE INDEX IF NOT EXISTS ix_versioned_entity_versioning ON versioned_entity (versioning_id)`,
	`CREATE TABLE IF NOT EXISTS entity_language_availability (
		entity_id TEXT NOT NULL,
		language_id TEXT NOT NULL,
		status TEXT NOT NULL,
		valid_from TIMESTAMP NULL,
		archive_at TIMESTAMP NULL,
		reviewed TIMESTAMP NULL,
		reviewed_by TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (entity_id, language_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_name (
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (entity_id, localization_id, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_description (
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (entity_id, localization_id, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_display_name_type (
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		display_name_type_id TEXT NOT NULL,
		PRIMARY KEY (entity_id, localization_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_area (
		entity_id TEXT NOT NULL,
		area_id TEXT NOT NULL,
		PRIMARY KEY (entity_id, area_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_language (
		entity_id TEXT NOT NULL,
		language_id TEXT NOT NULL,
		order_number INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (entity_id, language_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_email (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		value TEXT NOT NULL,
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS entity_phone (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		prefix_number TEXT NOT NULL DEFAULT '',
		number TEXT NOT NULL,
		charge_type_id TEXT NULL,
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS entity_web_page (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		url TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS entity_address (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS address_additional_info (
		address_id TEXT NOT NULL,
		localization_id TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (address_id, localization_id)
	)`,
	`CREATE TABLE IF NOT EXISTS address_coordinate (
		address_id TEXT NOT NULL,
		coordinate_type TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (address_id, coordinate_type)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_service_hours (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		valid_from TIMESTAMP NULL,
		valid_to TIMESTAMP NULL,
		is_closed BOOLEAN NOT NULL DEFAULT FALSE,
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS accessibility_register (
		id TEXT PRIMARY KEY,
		unific_root_id TEXT NOT NULL,
		url TEXT NOT NULL,
		contact_email TEXT NOT NULL DEFAULT '',
		is_valid BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS service_channel_connection (
		service_root_id TEXT NOT NULL,
		channel_root_id TEXT NOT NULL,
		charge_type_id TEXT NULL,
		order_number INTEGER NOT NULL DEFAULT 0,
		modified TIMESTAMP NOT NULL,
		modified_by TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (service_root_id, channel_root_id)
	)`,
	`CREATE TABLE IF NOT EXISTS connection_detail (
		id TEXT PRIMARY KEY,
		service_root_id TEXT NOT NULL,
		channel_root_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		localization_id TEXT NULL,
		type_id TEXT NULL,
		value TEXT NOT NULL DEFAULT '',
		order_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_connection_detail_kind ON connection_detail (kind, service_root_id, channel_root_id)`,
	`CREATE TABLE IF NOT EXISTS tracking_connection (
		id TEXT PRIMARY KEY,
		operation_type TEXT NOT NULL,
		created TIMESTAMP NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		relation TEXT NOT NULL,
		left_kind TEXT NOT NULL,
		left_root_id TEXT NOT NULL,
		right_kind TEXT NOT NULL,
		right_root_id TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_tracking_connection_created ON tracking_connection (created)`,
	`CREATE TABLE IF NOT EXISTS tracking_entity (
		id TEXT PRIMARY KEY,
		operation_type TEXT NOT NULL,
		created TIMESTAMP NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		entity_kind TEXT NOT NULL,
		root_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		organization_id TEXT NULL,
		language_id TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_tracking_entity_created ON tracking_entity (created)`,
}

// Migrate 创建全部表与索引，可重复执行
func Migrate(ctx context.Context, db core.IDatabase) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
