package repository

import "fmt"

// ClickHouseSchema returns the idempotent DDL for every table the adapters
// use.
func ClickHouseSchema(database string) []string {
	bars := func(table, partition string) string {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    code String,
    time DateTime64(3, 'Asia/Shanghai'),
    open Float64, close Float64, high Float64, low Float64,
    volume Float64, money Float64, factor Float64,
    high_limit Float64, low_limit Float64, avg Float64, pre_close Float64,
    paused UInt8, open_interest Float64
) ENGINE = ReplacingMergeTree
PARTITION BY %s
ORDER BY (code, time)`, database, table, partition)
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		bars("bars_1d", "toYear(time)"),
		bars("bars_1m", "toYYYYMM(time)"),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.securities (
    code String, display_name String, name String,
    start_date Date, end_date Date, type LowCardinality(String), parent String
) ENGINE = ReplacingMergeTree ORDER BY code`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trade_days (date Date) ENGINE = ReplacingMergeTree ORDER BY date`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.adj_factors (
    code String, date Date, factor Float64
) ENGINE = ReplacingMergeTree ORDER BY (code, date)`, database),
	}
}
