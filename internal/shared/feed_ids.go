package shared

// DefaultFeedIDs is the pilot partner set, used when FEED_IDS is not set.
var DefaultFeedIDs = []int64{
	1000101, 1000102, 1000107, 1000113, 1000126,
	1000131, 1000144, 1000150, 1000162, 1000175,
	1000188, 1000190, 1000203, 1000217, 1000221,
	1000234, 1000248, 1000252, 1000266, 1000270,
}
