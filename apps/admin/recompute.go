package main

import (
	"context"
	"fmt"
)

// recompute re-runs the scoring cycle for one tutor, by ID or email.
func (cli *commandLine) recompute(tutorRef string) error {
	res, err := cli.perfSvc.Recalculate(context.Background(), tutorRef)
	if err != nil {
		return err
	}
	fmt.Printf("tutor %s: score %.2f, tier %d (max %d students)\n",
		res.TutorID, res.PerformanceScore, res.Tier, res.MaxStudents)
	fmt.Println(res.Message)
	return nil
}
