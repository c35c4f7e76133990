package game

// DefaultLayout is a small symmetric four-bot maze used when no layout is
// configured. Team 0 (bots 0 and 2) defends the left half, team 1 (bots 1
// and 3) the right half.
const DefaultLayout = `
##################
#0 .  . .. .  . 1#
# ## #  ##  # ## #
#  . .#.  .#. .  #
# ## #  ##  # ## #
#2 .  . .. .  . 3#
##################
`

// TinyLayout is a minimal two-bot maze handy for quick matches and tests.
const TinyLayout = `
########
#0 .. 1#
########
`
