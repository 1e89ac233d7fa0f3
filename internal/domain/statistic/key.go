package statistic

const redisKeyLeaderboard = "reputation:leaderboard:xp"
