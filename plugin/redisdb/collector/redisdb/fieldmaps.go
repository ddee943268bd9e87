// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

type fieldMetric struct {
	field  string
	metric string
}

var gaugeFields = []fieldMetric{
	// append-only file
	{field: "aof_last_rewrite_time_sec", metric: "redis.aof.last_rewrite_time"},
	{field: "aof_rewrite_in_progress", metric: "redis.aof.rewrite"},
	{field: "aof_current_size", metric: "redis.aof.size"},
	{field: "aof_buffer_length", metric: "redis.aof.buffer_length"},

	// network
	{field: "connected_clients", metric: "redis.net.clients"},
	{field: "connected_slaves", metric: "redis.net.slaves"},
	{field: "rejected_connections", metric: "redis.net.rejected"},

	// clients
	{field: "blocked_clients", metric: "redis.clients.blocked"},
	{field: "client_biggest_input_buf", metric: "redis.clients.biggest_input_buf"},
	{field: "client_longest_output_list", metric: "redis.clients.longest_output_list"},

	// keys
	{field: "evicted_keys", metric: "redis.keys.evicted"},
	{field: "expired_keys", metric: "redis.keys.expired"},

	// stats
	{field: "keyspace_hits", metric: "redis.stats.keyspace_hits"},
	{field: "keyspace_misses", metric: "redis.stats.keyspace_misses"},
	{field: "latest_fork_usec", metric: "redis.perf.latest_fork_usec"},

	// pubsub
	{field: "pubsub_channels", metric: "redis.pubsub.channels"},
	{field: "pubsub_patterns", metric: "redis.pubsub.patterns"},

	// rdb
	{field: "rdb_bgsave_in_progress", metric: "redis.rdb.bgsave"},
	{field: "rdb_changes_since_last_save", metric: "redis.rdb.changes_since_last"},
	{field: "rdb_last_bgsave_time_sec", metric: "redis.rdb.last_bgsave_time"},

	// memory
	{field: "mem_fragmentation_ratio", metric: "redis.mem.fragmentation_ratio"},
	{field: "used_memory", metric: "redis.mem.used"},
	{field: "used_memory_lua", metric: "redis.mem.lua"},
	{field: "used_memory_peak", metric: "redis.mem.peak"},
	{field: "used_memory_rss", metric: "redis.mem.rss"},

	// replication
	{field: "master_last_io_seconds_ago", metric: "redis.replication.last_io_seconds_ago"},
	{field: "master_sync_in_progress", metric: "redis.replication.sync"},
	{field: "master_sync_left_bytes", metric: "redis.replication.sync_left_bytes"},
}

var rateFields = []fieldMetric{
	{field: "used_cpu_sys", metric: "redis.cpu.sys"},
	{field: "used_cpu_sys_children", metric: "redis.cpu.sys_children"},
	{field: "used_cpu_user", metric: "redis.cpu.user"},
	{field: "used_cpu_user_children", metric: "redis.cpu.user_children"},
}

type ratio struct {
	name  string
	num   string
	denom string
}

var ratioFields = []ratio{
	{name: "hit_ratio", num: "keyspace_hits", denom: "keyspace_misses"},
}

var dbSubkeys = []string{"keys", "expires"}
