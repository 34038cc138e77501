package subscription

import "time"

const testWait = time.Second
