package visual

import (
	"context"
	"log"
	"sync"

	"github.com/MisbahAN/ChatVid-AI/core"
	"github.com/MisbahAN/ChatVid-AI/llm"
)

// DescriptionError is the marker stored in place of a description for
// a frame whose vision call failed.
const DescriptionError = "Error"

// EnrichFrames fills in each frame's description and embedding in
// place. All description requests go out concurrently and the call
// returns only after every one has settled; one frame's failure never
// cancels its siblings. Embeddings run afterwards, one per frame;
// a failed embedding leaves that frame's Embedding nil, which excludes
// it from search without losing its description. Frames whose
// description failed are not embedded.
func EnrichFrames(ctx context.Context, client llm.Client, frames []core.Frame) {
	log.Printf("Describing %d frames", len(frames))

	var wg sync.WaitGroup
	for i := range frames {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			desc, err := client.Describe(ctx, frames[i].Path)
			if err != nil {
				log.Printf("Describe frame at %ds failed: %v", frames[i].TimestampSec, err)
				frames[i].Description = DescriptionError
				return
			}
			frames[i].Description = desc
		}(i)
	}
	wg.Wait()

	for i := range frames {
		if frames[i].Description == DescriptionError {
			continue
		}
		vec, err := client.Embed(ctx, frames[i].Description)
		if err != nil {
			log.Printf("Embed frame at %ds failed: %v", frames[i].TimestampSec, err)
			continue
		}
		frames[i].Embedding = vec
	}
}
